// Package certreload keeps the HTTPS server's certificate current.
//
// A Reloader loads a certificate/key pair, watches both files with
// fsnotify and swaps in the new pair once writes settle. The server reads
// it through tls.Config.GetCertificate, so rotation needs no restart.
package certreload
