//go:build unix

package daemon

import "syscall"

// daemonizeAttr detaches the spawned daemon process into its own
// session so it survives the spawning client's exit, per spec.md §4.7
// "the autostarted daemon must outlive the client that started it".
func daemonizeAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
