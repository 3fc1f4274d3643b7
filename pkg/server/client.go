package server

import _ "embed"

// clientJS is the browser client served at /client.js. It applies
// mutation frames to the page and posts events to /dispatch.
//
//go:embed client.js
var clientJS []byte
