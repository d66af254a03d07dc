// ABOUTME: Mixing layer package with buses, voices and pools
// ABOUTME: Routes pooled sound playback through a fixed two-level bus tree
// Package mixer provides the playback and routing layer of the engine.
//
// The bus graph is a fixed tree: master at the root with the ambient, sfx,
// slots and ui buses beneath it. Each sound owns a fixed-size Pool of Voices;
// triggering a sound never allocates and, when every slot is busy, stops the
// oldest voice before reusing its slot.
//
// Bus gains are stored as atomics so the caller can change them while the
// audio goroutine reads them. Voices and pools are not synchronized and must
// be driven under the owner's lock.
package mixer
