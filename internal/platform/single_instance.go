package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"path/filepath"
)

// ErrAlreadyRunning indicates another process already owns the state directory.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	minGuardPort = 20000
	maxGuardPort = 39999
)

// InstanceGuard marks this process as the only writer of a state directory.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance binds a localhost port derived from appName and
// dataDir. A second process using the same pair gets ErrAlreadyRunning.
func AcquireSingleInstance(appName, dataDir string) (*InstanceGuard, error) {
	address := GuardAddress(appName, dataDir)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", ErrAlreadyRunning, address)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// GuardAddress returns the loopback address used for the pair.
func GuardAddress(appName, dataDir string) string {
	return fmt.Sprintf("127.0.0.1:%d", guardPort(appName, dataDir))
}

// Release frees the lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func guardPort(appName, dataDir string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	_, _ = hash.Write([]byte{0})
	if dataDir != "" {
		if abs, err := filepath.Abs(dataDir); err == nil {
			dataDir = abs
		}
		_, _ = hash.Write([]byte(filepath.Clean(dataDir)))
	}
	rangeSize := maxGuardPort - minGuardPort + 1
	return minGuardPort + int(hash.Sum32()%uint32(rangeSize))
}
