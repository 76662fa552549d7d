/*
Package websock enhances Gorilla client websockets by handling graceful
closing on both sides using polite close control messages. This is as
opposed to simply tearing down the transport (TLS) connection. Additionally,
it adapts the binary message stream of such a websocket into a plain
io.Reader octet stream, ready to be decoded as live pcapng capture data.
*/
package websock
