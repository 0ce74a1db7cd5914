package codec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/unkn0wn-root/varcache/codec"
)

type page struct {
	Title string    `json:"title" msgpack:"title" cbor:"title"`
	Roles []string  `json:"roles" msgpack:"roles" cbor:"roles"`
	At    time.Time `json:"at" msgpack:"at" cbor:"at"`
}

func samplePage() page {
	return page{
		Title: "home",
		Roles: []string{"anonymous", "editor"},
		At:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCodecsRoundTrip(t *testing.T) {
	cases := map[string]codec.Codec[page]{
		"json":     codec.JSON[page]{},
		"msgpack":  codec.Msgpack[page]{},
		"cbor":     codec.MustCBOR[page](false),
		"cbor-det": codec.MustCBOR[page](true),
	}
	for name, cd := range cases {
		t.Run(name, func(t *testing.T) {
			in := samplePage()
			b, err := cd.Encode(in)
			require.NoError(t, err)
			out, err := cd.Decode(b)
			require.NoError(t, err)
			require.Equal(t, in.Title, out.Title)
			require.Equal(t, in.Roles, out.Roles)
			require.True(t, in.At.Equal(out.At))
		})
	}
}

func TestCBORDeterministicIsStable(t *testing.T) {
	cd := codec.MustCBOR[map[string]int](true)
	a, err := cd.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	b, err := cd.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestProtobufRoundTrip(t *testing.T) {
	cd := codec.NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := cd.Encode(wrapperspb.String("rendered"))
	require.NoError(t, err)
	out, err := cd.Decode(b)
	require.NoError(t, err)
	require.True(t, proto.Equal(wrapperspb.String("rendered"), out))
}

func TestProtobufZeroValueDecodeFails(t *testing.T) {
	var cd codec.Protobuf[*wrapperspb.StringValue]
	_, err := cd.Decode([]byte{})
	require.Error(t, err)
}

func TestLimit(t *testing.T) {
	cd := codec.Limit[string]{Inner: codec.String{}, MaxEncode: 4, MaxDecode: 3}

	_, err := cd.Encode("12345")
	require.ErrorIs(t, err, codec.ErrTooLarge)

	b, err := cd.Encode("1234")
	require.NoError(t, err)
	_, err = cd.Decode(b)
	require.ErrorIs(t, err, codec.ErrTooLarge)

	s, err := cd.Decode([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, "abc", s)

	unlimited := codec.Limit[string]{Inner: codec.String{}}
	_, err = unlimited.Decode(make([]byte, 1<<16))
	require.NoError(t, err)
}

func TestBytesDecodeCopies(t *testing.T) {
	src := []byte("fragment")
	out, err := codec.Bytes{}.Decode(src)
	require.NoError(t, err)
	src[0] = 'X'
	require.Equal(t, "fragment", string(out))
}

func TestJSONLeavesHTMLAndDropsNewline(t *testing.T) {
	b, err := codec.JSON[string]{}.Encode("<b>home</b>")
	require.NoError(t, err)
	require.Equal(t, `"<b>home</b>"`, string(b))
}

func TestJSONStrictRejectsUnknownFields(t *testing.T) {
	payload := []byte(`{"title":"home","layout":"wide"}`)

	out, err := codec.JSON[page]{}.Decode(payload)
	require.NoError(t, err)
	require.Equal(t, "home", out.Title)

	_, err = codec.JSON[page]{Strict: true}.Decode(payload)
	require.Error(t, err)
}

func TestTrailingDataIsRejected(t *testing.T) {
	_, err := codec.JSON[int]{}.Decode([]byte("1 2"))
	require.ErrorIs(t, err, codec.ErrTrailingData)

	mp := codec.Msgpack[int]{}
	b, err := mp.Encode(7)
	require.NoError(t, err)
	_, err = mp.Decode(append(b, b...))
	require.ErrorIs(t, err, codec.ErrTrailingData)

	cd := codec.MustCBOR[int](true)
	b, err = cd.Encode(7)
	require.NoError(t, err)
	_, err = cd.Decode(append(b, b...))
	require.Error(t, err)
}

func TestMsgpackSortsMapKeys(t *testing.T) {
	cd := codec.Msgpack[map[string]int]{}
	a, err := cd.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, err := cd.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
		require.NoError(t, err)
		require.Equal(t, a, b)
	}
}

func TestMsgpackJSONTags(t *testing.T) {
	type card struct {
		Title string `json:"t"`
	}
	b, err := codec.Msgpack[card]{JSONTags: true}.Encode(card{Title: "home"})
	require.NoError(t, err)

	asMap, err := codec.Msgpack[map[string]string]{}.Decode(b)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"t": "home"}, asMap)

	out, err := codec.Msgpack[card]{JSONTags: true}.Decode(b)
	require.NoError(t, err)
	require.Equal(t, "home", out.Title)
}

func TestCBORZeroValueErrors(t *testing.T) {
	var cd codec.CBOR[int]
	_, err := cd.Encode(1)
	require.Error(t, err)
	_, err = cd.Decode([]byte{0x01})
	require.Error(t, err)
}

func TestCBORUntypedMapsKeyedByString(t *testing.T) {
	cd := codec.MustCBOR[any](false)
	b, err := cd.Encode(map[string]any{"title": "home"})
	require.NoError(t, err)
	out, err := cd.Decode(b)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "home"}, out)
}
