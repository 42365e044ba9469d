// Package logging provides the shared structured logger used by the
// conversion pipeline and resource-allocator reconstructor. It follows the
// same WithFields-per-call-site convention as the Firecracker hypervisor
// driver in kata-containers' virtcontainers package, so the host monitor
// can swap in its own logrus.FieldLogger without the core caring who's
// listening.
package logging

import "github.com/sirupsen/logrus"

// logger is the package-level sink. It defaults to logrus' standard logger
// so the package is usable without any setup, matching the teacher's
// preference for zero-configuration defaults.
var logger logrus.FieldLogger = logrus.StandardLogger() //nolint:gochecknoglobals

// SetLogger replaces the package-level logger. The host monitor calls this
// once at startup to route migrator logs into its own logging pipeline.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		logger = l
	}
}

// Log returns the current package-level logger.
func Log() logrus.FieldLogger { return logger }

// Component returns a child logger tagged with the originating subsystem,
// mirroring fc.Logger().WithFields(logrus.Fields{...}) in the pack.
func Component(name string) logrus.FieldLogger {
	return logger.WithField("component", name)
}
