// Package hostfacts resolves facts about the host it runs on.
//
// A fact is a named piece of host information (os.release.major,
// networking.ip, memory.system.total_bytes). Facts come from three
// sources:
//  1. Built-in probes - kernel, os-release, memory, uptime, identity,
//     networking, virtualization, cloud metadata and SSH host keys
//     (package standard)
//  2. External facts - YAML, JSON and key=value files in fact
//     directories (package external)
//  3. Extra definitions supplied by the caller
//
// Queries address facts by dotted path. A query may reach into a fact's
// value (os.release.major, networking.interfaces.eth0.ip) or name a group
// of facts (os). Expensive probes run at most once per Client no matter
// how many facts or queries need them.
package hostfacts

// Version is the hostfacts release, published as the hostfactsversion
// fact.
const Version = "1.0.0"
