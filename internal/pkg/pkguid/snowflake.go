package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Epoch is the millisecond timestamp snowflake ids count from
// (2026-01-01T00:00:00Z).
const Epoch int64 = 1767225600000

// Snowflake generates numeric IDs using the Snowflake algorithm.
type Snowflake struct {
	node *snowflake.Node
}

func generateRandomNodeID() (int64, error) {
	var nodeID int64
	err := binary.Read(rand.Reader, binary.BigEndian, &nodeID)
	if err != nil {
		return 0, err
	}

	return nodeID & (1<<snowflake.NodeBits - 1), nil
}

// NewSnowflake constructs a Snowflake generator for nodeID. A negative nodeID
// picks a random node, which is fine for a single replica but may collide
// across several.
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 {
		var err error
		if nodeID, err = generateRandomNodeID(); err != nil {
			return nil, fmt.Errorf("generate snowflake node id: %w", err)
		}
	}

	snowflake.Epoch = Epoch

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique, time-ordered, positive numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
