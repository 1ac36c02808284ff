// Package webserver integrates with the host web server that fronts issued
// certificates. The Reloader interface covers the two things the lifecycle
// core needs: a document root to drop HTTP-01 challenge files into, and a
// validate-then-reload cycle after certificates change on disk.
//
// NginxReloader is the nginx implementation. Reload always runs the server's
// own configuration check first; a failing check aborts the reload so a bad
// config can never take down a running server.
package webserver
