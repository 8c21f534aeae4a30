// Package photocache keeps a local JSON-file cache of recently uploaded
// photo records so a gallery surface can show new uploads without refetching
// the backend. Updates are best-effort: a failed cache write is logged and
// never affects the upload that produced it.
package photocache
