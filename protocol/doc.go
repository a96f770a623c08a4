/*
Package protocol defines the data model shared by keylink clients and
nodes.

Identifiers

NodeID names a peer node; it is both a storage provider entry in a claim
and the address of a proxy tunnel. PublicKeyHash is the fingerprint of a
signing key. Both wrap a multihash and render as base58.

Key-Link Chain

A username is anchored by a Chain of UserPublicKeyLinks, oldest first.
Each link carries a Claim signed by its owner which, among other things,
lists in priority order the storage nodes that are authoritative for the
identity's mutable state. The chain is append-only and its last link is
authoritative. A rotated owner key is proven by a signature from the
previous owner. Chain.Verify checks this linkage against a ClaimVerifier,
such as a KeyRing.

Error

This module defines the sentinel error codes returned while decoding node
responses, checking chains and routing requests.
*/
package protocol
