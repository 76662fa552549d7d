/*
Package pcapsift reads pcapng network capture streams and hands out the
captured packets one by one, together with their timestamps and capture
interface metadata. The captures can come from files, from standard input,
or live from a capture service streaming pcapng data over a websocket. There
is no need to fully download or even store a capture first; packets are
decoded as the stream comes in. So, Streaming Killed the Download Star –
with apologies to Trevor Horn.

pcapsift is strictly a decoder: it does not write captures, does not dissect
packet payloads, and does not read the legacy pcap format. What it does take
seriously is surviving the wild variety of pcapng writers out there: decode
problems confined to a single block skip just that block, while iteration
continues with the next one. Only damage to the block framing itself ends a
stream early, as the decoder then has no trustworthy way to find the next
block boundary.

Normally, decoding simply runs until the capture stream ends. Live capture
streams end when the capture service closes the stream; simply stop calling
Next and close the stream reader to cancel early.
*/
package pcapsift
