// Package idgen provides injectable batch id generators.
//
// The core never invents ids on its own: the orchestrator asks a Generator and
// retries while the candidate collides with an id the store has already issued.
package idgen

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.jetify.com/typeid/v2"

	"github.com/vsinha/dough/pkg/domain/entities"
)

// Generator produces candidate batch ids
type Generator interface {
	NextID() entities.BatchID
}

// Strategy names a generator implementation in configuration
type Strategy string

const (
	StrategySequence  Strategy = "sequence"
	StrategyTypeID    Strategy = "typeid"
	StrategySnowflake Strategy = "snowflake"
)

// New builds a generator for the named strategy
func New(strategy Strategy, node int64) (Generator, error) {
	switch Strategy(strings.ToLower(string(strategy))) {
	case StrategySequence, "":
		return NewSequence("B-", 2001), nil
	case StrategyTypeID:
		return NewTypeID("batch"), nil
	case StrategySnowflake:
		return NewSnowflake(node)
	default:
		return nil, fmt.Errorf("unknown id strategy %q (expected sequence, typeid or snowflake)", strategy)
	}
}

// Sequence issues deterministic ids of the form <prefix><n>
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int64
}

// NewSequence creates a sequence starting at start
func NewSequence(prefix string, start int64) *Sequence {
	return &Sequence{prefix: prefix, next: start}
}

// NextID returns the next id in the sequence
func (s *Sequence) NextID() entities.BatchID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entities.BatchID(fmt.Sprintf("%s%d", s.prefix, s.next))
	s.next++
	return id
}

// TypeID issues K-sortable ids such as batch_01h2xcejqtf2nbrexx3vqjhp41
type TypeID struct {
	prefix string
}

// NewTypeID creates a TypeID generator. The prefix must be a valid TypeID prefix.
func NewTypeID(prefix string) *TypeID {
	return &TypeID{prefix: prefix}
}

// NextID returns a fresh TypeID. An invalid prefix is a programming error.
func (g *TypeID) NextID() entities.BatchID {
	tid, err := typeid.Generate(g.prefix)
	if err != nil {
		panic(fmt.Sprintf("idgen: invalid typeid prefix %q: %v", g.prefix, err))
	}
	return entities.BatchID(tid.String())
}

// Snowflake issues ids from a snowflake node, prefixed with B-
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a snowflake generator for the given node number
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// NextID returns the next snowflake id
func (g *Snowflake) NextID() entities.BatchID {
	return entities.BatchID("B-" + g.node.Generate().String())
}
