// Command varcache inspects and edits variation chains in a live backend.
//
//	varcache chain page --context user.roles=editor --context url=/x
//	varcache get page --context user.roles=editor
//	varcache set page --vary user.roles --context user.roles=editor --max-age 10m --value '<p>hi</p>'
//	varcache delete page --context user.roles=editor
//	varcache invalidate-tags node:1 node_list
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(defaultOpeners()).Execute(); err != nil {
		os.Exit(1)
	}
}
