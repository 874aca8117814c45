package storage

import (
	"errors"
	"slices"
)

var ErrTransactionAlreadyEnded = errors.New("transaction has already been committed or rolled back")

// Transaction groups writes so that a failed unit of work leaves nothing
// behind. Transactions are serialized: BeginTransaction blocks until the
// previous one ends. Reads outside the transaction see its writes as they
// happen.
type Transaction struct {
	gs    *GraphStorage
	id    uint64
	ended bool

	createdNodes []uint64
	createdEdges []uint64
}

// BeginTransaction starts a new write transaction
func (gs *GraphStorage) BeginTransaction() *Transaction {
	gs.txMu.Lock()

	gs.mu.Lock()
	gs.txID++
	id := gs.txID
	gs.mu.Unlock()

	return &Transaction{gs: gs, id: id}
}

// ID returns the transaction number
func (tx *Transaction) ID() uint64 { return tx.id }

// CreateNode creates a node that Rollback will remove.
func (tx *Transaction) CreateNode(labels []string, properties map[string]any) (*Node, error) {
	if tx.ended {
		return nil, ErrTransactionAlreadyEnded
	}
	n, err := tx.gs.CreateNode(labels, properties)
	if err != nil {
		return nil, err
	}
	tx.createdNodes = append(tx.createdNodes, n.ID)
	return n, nil
}

// CreateEdge creates an edge that Rollback will remove.
func (tx *Transaction) CreateEdge(fromID, toID uint64, edgeType string, properties map[string]any) (*Edge, error) {
	if tx.ended {
		return nil, ErrTransactionAlreadyEnded
	}
	e, err := tx.gs.CreateEdge(fromID, toID, edgeType, properties)
	if err != nil {
		return nil, err
	}
	tx.createdEdges = append(tx.createdEdges, e.ID)
	return e, nil
}

// Commit keeps the transaction's writes.
func (tx *Transaction) Commit() error {
	if tx.ended {
		return ErrTransactionAlreadyEnded
	}
	tx.end()
	return nil
}

// Rollback removes everything the transaction created, newest first.
func (tx *Transaction) Rollback() error {
	if tx.ended {
		return ErrTransactionAlreadyEnded
	}
	defer tx.end()

	gs := tx.gs
	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, id := range slices.Backward(tx.createdEdges) {
		gs.removeEdge(id)
	}
	for _, id := range slices.Backward(tx.createdNodes) {
		if n, ok := gs.nodes[id]; ok {
			gs.deleteNodeLocked(n)
		}
	}
	gs.updateMetrics()
	gs.logger.Debug("transaction rolled back")
	return nil
}

func (tx *Transaction) end() {
	tx.ended = true
	tx.gs.txMu.Unlock()
}
