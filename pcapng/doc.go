/*
Package pcapng decodes pcapng capture streams into their individual packets.
It is a read-only, strictly sequential decoder: blocks are framed and decoded
in stream order, packets are handed out one at a time, and there is no
seeking. Dissecting the packet payloads beyond the raw link-layer octets is
out of scope; use your favourite packet dissector on the Packet data instead.

The decoder is deliberately lenient with what heterogeneous pcapng writers
put into the wild: problems confined to a single well-framed block (such as a
reference to an undeclared capture interface) skip just that block, while
anything that breaks the block framing itself (such as a block trailer
disagreeing with its header about the block length) poisons the stream, as
the decoder then cannot locate the next block boundary without guessing.
Oddities that do not even warrant skipping a block, such as unknown option
codes, are merely logged.
*/
package pcapng
