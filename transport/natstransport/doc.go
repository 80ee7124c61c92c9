// Package natstransport implements comm.Transport over NATS.
//
// Processes that share a group name find each other through a JetStream KV
// bucket: each claims a distinct rank, subscribes to its own subject, marks
// itself ready, and waits until every rank of the group is ready. Payloads
// then flow over core NATS subjects "<prefix>.<group>.<rank>" with the
// sender's rank carried in a header.
//
// Example:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	tr, err := natstransport.Join(ctx, nc, natstransport.Config{Group: "ingest", Size: 4, Rank: -1})
//	if err != nil { /* handle */ }
//	c := comm.New(tr)
//	defer c.Close(ctx)
package natstransport
