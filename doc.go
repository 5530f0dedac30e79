// Package tn5250 implements the IBM 5250 terminal protocol over telnet, from
// both the terminal side and the host side.
//
// The terminal side wraps a transport in a Conn: it answers the host's
// telnet option negotiation, decodes host-pushed screen records into a
// Screen of cells and input fields, and sends AID-keyed responses carrying
// whatever the operator typed. The host side accepts terminals into
// Sessions, builds screens with a Builder, and parses the responses that
// come back. Server runs one goroutine per session with no shared state
// between them.
//
// Wire traffic is framed as telnet records: option commands are consumed by
// the Negotiator, IAC EOR delimits 5250 records, and everything between is
// EBCDIC payload translated through the ebcdic package.
package tn5250
