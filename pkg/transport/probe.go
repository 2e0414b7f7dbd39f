package transport

import (
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"
)

// Probe checks SSH reachability of a target without opening a configuration
// session: it completes an SSH handshake and immediately disconnects. Used
// by status checks to distinguish "unreachable" from "reachable but
// misconfigured" before a full session is attempted.
func Probe(target Target, timeout time.Duration) error {
	config := &ssh.ClientConfig{
		User: target.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(target.Password),
		},
		// Host keys are not pinned for lab devices; the configuration
		// session itself uses the same policy.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	port := target.Port
	if port == 0 {
		port = 22
	}
	addr := fmt.Sprintf("%s:%d", target.Host, port)

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return &ConnectionError{Host: target.Host, Err: err}
	}
	return client.Close()
}
