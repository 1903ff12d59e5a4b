// Package ecat defines the core types shared by the go-ecat packages: the
// slave application-layer state model, the descriptors for slaves and the
// process-data group, bounds-checked views into the process image, and the
// Stack interface through which a session drives the underlying fieldbus
// protocol engine.
//
// The Stack is an external collaborator. It owns slave discovery, address
// assignment and the on-wire datagram format; go-ecat owns the session
// lifecycle, the cyclic exchange semantics and the PDO record layout built
// on top of it.
package ecat
