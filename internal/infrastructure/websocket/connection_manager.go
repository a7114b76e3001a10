package websocket

import (
	"sync"

	"bidbout/internal/domain"
	"bidbout/pkg/logger"
)

// Manager tracks the live connections per lot.
type Manager struct {
	connections map[string]map[string]domain.WebSocketConnection // lotID -> bidderID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (m *Manager) RegisterConnection(bidderID, lotID string, conn domain.WebSocketConnection) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.connections[lotID] == nil {
		m.connections[lotID] = make(map[string]domain.WebSocketConnection)
	}
	m.connections[lotID][bidderID] = conn

	m.log.Info("Connection registered", "bidder_id", bidderID, "lot_id", lotID)
	return nil
}

func (m *Manager) UnregisterConnection(bidderID, lotID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lotConns, exists := m.connections[lotID]; exists {
		delete(lotConns, bidderID)
		if len(lotConns) == 0 {
			delete(m.connections, lotID)
		}
	}

	m.log.Info("Connection unregistered", "bidder_id", bidderID, "lot_id", lotID)
	return nil
}

func (m *Manager) BroadcastToLot(lotID string, message interface{}) error {
	m.mutex.RLock()
	var conns []domain.WebSocketConnection
	for _, conn := range m.connections[lotID] {
		conns = append(conns, conn)
	}
	m.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(message); err != nil {
			m.log.Error("Failed to send message", "bidder_id", conn.BidderID(),
				"lot_id", lotID, "error", err)
			// keep going, other connections may still be healthy
		}
	}

	return nil
}

func (m *Manager) CloseAndUnregisterConnections(lotID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lotConns, exists := m.connections[lotID]; exists {
		for bidderID, conn := range lotConns {
			if err := conn.Close(); err != nil {
				m.log.Error("Failed to close connection", "bidder_id", bidderID,
					"lot_id", lotID, "error", err)
			}
		}
		delete(m.connections, lotID)
	}

	m.log.Info("Connections closed for lot", "lot_id", lotID)
	return nil
}
