package roomtalk

import (
	"github.com/roomtalk/roomtalk-sdk-go/roomtalk/internal"
)

// defaultFactory dials the configured socket URL with a fresh connection per
// room selection.
func (s *Session) defaultFactory() TransportFactory {
	cfg := s.cfg
	logger := s.logger
	return func() Transport {
		conn := internal.NewConn(cfg.SocketURL, cfg.HandshakeTimeout, cfg.ReadTimeout, cfg.WriteTimeout)
		conn.OnDrop(func(err error) {
			logger.Warn("transport read loop exit", map[string]any{"error": err.Error()})
		})
		return conn
	}
}
