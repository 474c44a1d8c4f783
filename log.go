package peblar

import (
	"log"
	"os"
	"sync/atomic"

	"github.com/thinkgos/gopeblar/modbus"
)

// logger register level debug log wrapper
type logger struct {
	provider modbus.LogProvider
	// is log output enabled,1: enable, 0: disable
	has uint32
}

func newLogger() logger {
	return logger{
		provider: defaultLogger{log.New(os.Stderr, "peblar => ", log.LstdFlags)},
	}
}

// LogMode set enable or disable log output
func (sf *logger) LogMode(enable bool) {
	var v uint32
	if enable {
		v = 1
	}
	atomic.StoreUint32(&sf.has, v)
}

func (sf *logger) setLogProvider(p modbus.LogProvider) {
	if p != nil {
		sf.provider = p
	}
}

func (sf *logger) Errorf(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Errorf(format, v...)
	}
}

func (sf *logger) Debugf(format string, v ...interface{}) {
	if atomic.LoadUint32(&sf.has) == 1 {
		sf.provider.Debugf(format, v...)
	}
}

type defaultLogger struct {
	*log.Logger
}

func (sf defaultLogger) Errorf(format string, v ...interface{}) {
	sf.Printf("[E]: "+format, v...)
}

func (sf defaultLogger) Debugf(format string, v ...interface{}) {
	sf.Printf("[D]: "+format, v...)
}
