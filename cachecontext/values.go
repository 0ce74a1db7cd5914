package cachecontext

import "context"

type valuesKey struct{}

// WithValues returns a child context carrying request-scoped context tokens.
// Values from parent contexts are kept unless overridden.
func WithValues(ctx context.Context, values map[string]string) context.Context {
	merged := make(map[string]string, len(values))
	if prev, ok := ctx.Value(valuesKey{}).(map[string]string); ok {
		for k, v := range prev {
			merged[k] = v
		}
	}
	for k, v := range values {
		merged[k] = v
	}
	return context.WithValue(ctx, valuesKey{}, merged)
}

// WithValue is WithValues for a single context.
func WithValue(ctx context.Context, name, token string) context.Context {
	return WithValues(ctx, map[string]string{name: token})
}

// ValueOf reads a token stored by WithValues.
func ValueOf(ctx context.Context, name string) (string, bool) {
	m, ok := ctx.Value(valuesKey{}).(map[string]string)
	if !ok {
		return "", false
	}
	v, ok := m[name]
	return v, ok
}

// Value resolves from request-scoped values stored under key.
// For parameterised references the lookup key is "key:param".
func Value(key string) Func {
	return func(ctx context.Context, param string) (string, error) {
		k := key
		if param != "" {
			k = key + ":" + param
		}
		if v, ok := ValueOf(ctx, k); ok {
			return v, nil
		}
		return "", ErrMissingValue
	}
}

// Static always resolves to token.
func Static(token string) Func {
	return func(context.Context, string) (string, error) { return token, nil }
}
