// Package dashboard serves the devicehub web dashboard as an embedded asset.
//
// The dashboard is plain HTML/CSS/JS with no build step, embedded into the
// Go binary via the go:embed directive so the hub ships as a single file.
// The Handler function returns an http.Handler serving these assets with
// SPA (Single Page Application) fallback routing: if a requested file does
// not exist, index.html is served so client-side routing works correctly.
//
// For development, a filesystem directory can be passed to Handler to serve
// assets from disk instead, allowing edit-and-refresh without a rebuild.
//
// Cache-control is no-cache throughout: the assets carry no content hashes,
// so nothing is safe for browsers to cache across hub upgrades.
package dashboard
