// Ripplenotify - Ledger Payment Notifications
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ripplenotify

package ledger

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ripplenotify/internal/models"
)

// Stream message types sent by rippled.
const (
	MessageTypeTransaction  = "transaction"
	MessageTypeResponse     = "response"
	MessageTypeLedgerClosed = "ledgerClosed"
)

// ErrNotTransaction is returned by ParseStreamMessage for messages that are
// not transaction notifications.
var ErrNotTransaction = errors.New("not a transaction message")

// StreamMessage is the envelope of every message on a rippled websocket.
type StreamMessage struct {
	Type         string          `json:"type"`
	ID           json.RawMessage `json:"id,omitempty"`
	Status       string          `json:"status,omitempty"`
	Error        string          `json:"error,omitempty"`
	ErrorMsg     string          `json:"error_message,omitempty"`
	EngineResult string          `json:"engine_result,omitempty"`
	LedgerIndex  uint64          `json:"ledger_index,omitempty"`
	Validated    bool            `json:"validated,omitempty"`
	Hash         string          `json:"hash,omitempty"`
	Transaction  json.RawMessage `json:"transaction,omitempty"`
	TxJSON       json.RawMessage `json:"tx_json,omitempty"`
	Meta         json.RawMessage `json:"meta,omitempty"`
}

// SubscribeRequest is the command that opens a stream subscription.
type SubscribeRequest struct {
	ID      int      `json:"id"`
	Command string   `json:"command"`
	Streams []string `json:"streams,omitempty"`
}

// NewSubscribeRequest builds a subscribe command for the transactions stream.
func NewSubscribeRequest(id int) SubscribeRequest {
	return SubscribeRequest{ID: id, Command: "subscribe", Streams: []string{"transactions"}}
}

type txFields struct {
	TransactionType string          `json:"TransactionType"`
	Account         string          `json:"Account"`
	Destination     string          `json:"Destination"`
	Amount          json.RawMessage `json:"Amount"`
	DeliverMax      json.RawMessage `json:"DeliverMax"`
	Hash            string          `json:"hash"`
}

type txMeta struct {
	TransactionResult string            `json:"TransactionResult"`
	DeliveredAmount   json.RawMessage   `json:"delivered_amount"`
	AffectedNodes     []json.RawMessage `json:"AffectedNodes"`
}

// affectedNode holds the one populated wrapper of a metadata node.
type affectedNode struct {
	CreatedNode  *nodeFields `json:"CreatedNode"`
	ModifiedNode *nodeFields `json:"ModifiedNode"`
	DeletedNode  *nodeFields `json:"DeletedNode"`
}

type nodeFields struct {
	LedgerEntryType string                     `json:"LedgerEntryType"`
	NewFields       map[string]json.RawMessage `json:"NewFields"`
	FinalFields     map[string]json.RawMessage `json:"FinalFields"`
}

// Ledger entry fields that name an account directly.
var accountFields = []string{"Account", "Owner", "Destination", "Issuer", "Target", "RegularKey"}

// Ledger entry fields that hold an amount or limit whose issuer is affected.
var issuerFields = []string{"HighLimit", "LowLimit", "TakerPays", "TakerGets"}

// ParseStreamMessage decodes a rippled stream message into a TransactionEvent.
// Messages whose type is not "transaction" return ErrNotTransaction.
func ParseStreamMessage(data []byte) (*models.TransactionEvent, error) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode stream message: %w", err)
	}
	if msg.Type != MessageTypeTransaction {
		return nil, ErrNotTransaction
	}
	return msg.Event()
}

// Event converts a transaction stream message into a TransactionEvent.
func (m *StreamMessage) Event() (*models.TransactionEvent, error) {
	rawTx := m.Transaction
	if len(rawTx) == 0 {
		rawTx = m.TxJSON
	}
	if len(rawTx) == 0 {
		return nil, errors.New("transaction message without transaction body")
	}

	var tx txFields
	if err := json.Unmarshal(rawTx, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	var meta txMeta
	if len(m.Meta) > 0 {
		if err := json.Unmarshal(m.Meta, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	ev := &models.TransactionEvent{
		Hash:            tx.Hash,
		ResultCode:      m.EngineResult,
		Validated:       m.Validated,
		LedgerIndex:     m.LedgerIndex,
		TransactionType: tx.TransactionType,
		Account:         tx.Account,
		Destination:     tx.Destination,
	}
	if ev.Hash == "" {
		ev.Hash = m.Hash
	}
	if ev.ResultCode == "" {
		ev.ResultCode = meta.TransactionResult
	}

	// Partial payments deliver less than Amount; prefer what actually arrived
	// and fall back when a field is missing or malformed.
	var amountErr error
	for _, raw := range []json.RawMessage{meta.DeliveredAmount, tx.Amount, tx.DeliverMax} {
		if len(raw) == 0 || string(raw) == `"unavailable"` {
			continue
		}
		amount, err := ParseAmount(raw)
		if err != nil {
			amountErr = err
			continue
		}
		ev.Amount = amount
		amountErr = nil
		break
	}
	if amountErr != nil && ev.IsPayment() {
		return nil, fmt.Errorf("payment %s: %w", ev.Hash, amountErr)
	}

	ev.AffectedAccounts = affectedAccounts(&tx, meta.AffectedNodes)
	return ev, nil
}

// affectedAccounts lists the transaction parties followed by every account
// named in the metadata nodes, deduplicated in first-seen order.
func affectedAccounts(tx *txFields, nodes []json.RawMessage) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(addr string) {
		if addr == "" || addr[0] != 'r' {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}

	add(tx.Account)
	add(tx.Destination)

	for _, raw := range nodes {
		var node affectedNode
		if err := json.Unmarshal(raw, &node); err != nil {
			continue
		}
		fields := node.fields()
		if fields == nil {
			continue
		}
		for _, set := range []map[string]json.RawMessage{fields.NewFields, fields.FinalFields} {
			for _, name := range accountFields {
				if v, ok := set[name]; ok {
					var addr string
					if json.Unmarshal(v, &addr) == nil {
						add(addr)
					}
				}
			}
			for _, name := range issuerFields {
				if v, ok := set[name]; ok {
					var amt issuedAmount
					if json.Unmarshal(v, &amt) == nil {
						add(amt.Issuer)
					}
				}
			}
		}
	}
	return out
}

func (n *affectedNode) fields() *nodeFields {
	switch {
	case n.CreatedNode != nil:
		return n.CreatedNode
	case n.ModifiedNode != nil:
		return n.ModifiedNode
	case n.DeletedNode != nil:
		return n.DeletedNode
	default:
		return nil
	}
}
