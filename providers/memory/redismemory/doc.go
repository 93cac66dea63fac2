// Package redismemory implements [memory.Store] on Redis lists using
// github.com/redis/go-redis/v9. Each conversation is a list under
// [memory.Key]; every entry is a JSON [memory.Record]. Appends are RPUSH,
// reads are LRANGE over the last N entries and Clear is DEL.
//
// The main entry point is [New], which accepts any redis.Cmdable (a
// *redis.Client, a cluster client, or a pipeline). [Dial] builds a client
// from [Options] and verifies connectivity with PING.
package redismemory
