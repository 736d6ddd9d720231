// Package hooks groups the hooks compiled into growl. Each subpackage
// registers itself with the site package from init; a site enables one by
// naming it in a manifest under its hook directory.
package hooks
