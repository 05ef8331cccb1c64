package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/soundprediction/metalink/pkg/types"
)

// Neo4jDriver implements the GraphDriver interface for Neo4j databases.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jDriver{client: client, database: database}, nil
}

// relationshipName maps an edge type onto its Neo4j relationship type.
// Relationship types cannot be parameterized in Cypher, so the mapping
// is a closed set; unknown types are rejected before query assembly.
func relationshipName(t types.EdgeType) (string, error) {
	switch t {
	case types.DescribesEdgeType:
		return "DESCRIBES", nil
	case types.MentionsEdgeType:
		return "MENTIONS", nil
	case types.LinksToEdgeType:
		return "LINKS_TO", nil
	case types.SimilarToEdgeType:
		return "SIMILAR_TO", nil
	case types.HasWikiEdgeType:
		return "HAS_WIKI", nil
	case types.ParentOfEdgeType:
		return "PARENT_OF", nil
	default:
		return "", fmt.Errorf("unknown edge type %q", t)
	}
}

func edgeTypeFromRelationship(name string) types.EdgeType {
	switch name {
	case "DESCRIBES":
		return types.DescribesEdgeType
	case "MENTIONS":
		return types.MentionsEdgeType
	case "LINKS_TO":
		return types.LinksToEdgeType
	case "SIMILAR_TO":
		return types.SimilarToEdgeType
	case "HAS_WIKI":
		return types.HasWikiEdgeType
	case "PARENT_OF":
		return types.ParentOfEdgeType
	default:
		return types.EdgeType(name)
	}
}

const upsertNodeQuery = `
	MERGE (n:Entity {id: $id})
	ON CREATE SET n.created_at = $now
	SET n.type = $type,
		n.name = CASE WHEN $name = '' THEN coalesce(n.name, '') ELSE $name END,
		n.attributes = $attributes,
		n.raw_texts = [x IN coalesce(n.raw_texts, []) WHERE NOT x IN $raw_texts] + $raw_texts,
		n.updated_at = $now
`

func upsertNodeParams(node *types.Node, now time.Time) (map[string]any, error) {
	attrs, err := json.Marshal(node.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node attributes: %w", err)
	}
	raw := node.RawTexts
	if raw == nil {
		raw = []string{}
	}
	return map[string]any{
		"id":         node.ID,
		"type":       string(node.Type),
		"name":       node.Name,
		"attributes": string(attrs),
		"raw_texts":  raw,
		"now":        now.UTC(),
	}, nil
}

// UpsertNode creates or merge-updates a node keyed by canonical id.
func (n *Neo4jDriver) UpsertNode(ctx context.Context, node *types.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	params, err := upsertNodeParams(node, time.Now())
	if err != nil {
		return err
	}
	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, upsertNodeQuery, params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", node.ID, err)
	}
	return nil
}

func upsertEdgeQuery(rel string) string {
	return fmt.Sprintf(`
		MATCH (a:Entity {id: $source_id})
		MATCH (b:Entity {id: $target_id})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET r.uuid = $uuid, r.created_at = $now
		SET r.provenance = $provenance,
			r.confidence = $confidence,
			r.attributes = $attributes,
			r.updated_at = $now
	`, rel)
}

func upsertEdgeParams(edge *types.Edge, now time.Time) (map[string]any, error) {
	attrs, err := json.Marshal(edge.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edge attributes: %w", err)
	}
	return map[string]any{
		"source_id":  edge.SourceID,
		"target_id":  edge.TargetID,
		"uuid":       edge.UUID,
		"provenance": string(edge.Provenance),
		"confidence": edge.Confidence,
		"attributes": string(attrs),
		"now":        now.UTC(),
	}, nil
}

// UpsertEdge creates or re-asserts an edge. MERGE on the typed
// relationship gives merge-not-duplicate semantics for equal
// (source, target, type).
func (n *Neo4jDriver) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	rel, err := relationshipName(edge.Type)
	if err != nil {
		return err
	}
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	params, err := upsertEdgeParams(edge, time.Now())
	if err != nil {
		return err
	}
	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, upsertEdgeQuery(rel), params)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upsert edge %s: %w", edge.Key(), err)
	}
	return nil
}

// neo4jTx adapts a managed transaction to the Tx interface so a whole
// record's writes commit or roll back together.
type neo4jTx struct {
	tx neo4j.ManagedTransaction
}

func (t *neo4jTx) UpsertNode(ctx context.Context, node *types.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	params, err := upsertNodeParams(node, time.Now())
	if err != nil {
		return err
	}
	_, err = t.tx.Run(ctx, upsertNodeQuery, params)
	return err
}

func (t *neo4jTx) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	rel, err := relationshipName(edge.Type)
	if err != nil {
		return err
	}
	params, err := upsertEdgeParams(edge, time.Now())
	if err != nil {
		return err
	}
	_, err = t.tx.Run(ctx, upsertEdgeQuery(rel), params)
	return err
}

// WithTx runs fn inside one managed write transaction. The neo4j
// driver retries transient serialization failures itself; an exhausted
// retry surfaces as ErrWriteConflict.
func (n *Neo4jDriver) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(ctx, &neo4jTx{tx: tx})
	})
	if err != nil {
		if neo4j.IsRetryable(err) {
			return fmt.Errorf("%w: %v", ErrWriteConflict, err)
		}
		return err
	}
	return nil
}

// GetNode retrieves a node by canonical identifier.
func (n *Neo4jDriver) GetNode(ctx context.Context, nodeID string) (*types.Node, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:Entity {id: $id}) RETURN n`, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return nil, ErrNodeNotFound
	}
	record := result.(*db.Record)
	value, found := record.Get("n")
	if !found {
		return nil, ErrNodeNotFound
	}
	dbNode, ok := value.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected type for node: got %T", value)
	}
	return nodeFromDBNode(dbNode), nil
}

// GetNodes retrieves multiple nodes; missing identifiers are skipped.
func (n *Neo4jDriver) GetNodes(ctx context.Context, nodeIDs []string) ([]*types.Node, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n:Entity)
			WHERE n.id IN $ids
			RETURN n
			ORDER BY n.id
		`, map[string]any{"ids": nodeIDs})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return nodesFromRecords(result.([]*db.Record), "n"), nil
}

// NodeEdges retrieves every edge touching the node.
func (n *Neo4jDriver) NodeEdges(ctx context.Context, nodeID string) ([]*types.Edge, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:Entity {id: $id})-[r]-(b:Entity)
			RETURN r, startNode(r).id AS source_id, endNode(r).id AS target_id
			ORDER BY source_id, target_id, type(r)
		`, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return edgesFromRecords(result.([]*db.Record))
}

// Neighbors retrieves the immediate neighbors of a node.
func (n *Neo4jDriver) Neighbors(ctx context.Context, nodeID string) ([]types.Neighbor, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:Entity {id: $id})-[r]-(b:Entity)
			RETURN b, type(r) AS rel
			ORDER BY b.id, rel
		`, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*db.Record)
	out := make([]types.Neighbor, 0, len(records))
	for _, record := range records {
		value, found := record.Get("b")
		if !found {
			continue
		}
		dbNode, ok := value.(dbtype.Node)
		if !ok {
			continue
		}
		rel, _ := record.Get("rel")
		relName, _ := rel.(string)
		out = append(out, types.Neighbor{
			Node:     nodeFromDBNode(dbNode),
			EdgeType: edgeTypeFromRelationship(relName),
		})
	}
	return out, nil
}

// AllNodes returns a snapshot of every node ordered by identifier.
func (n *Neo4jDriver) AllNodes(ctx context.Context) ([]*types.Node, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n:Entity) RETURN n ORDER BY n.id`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return nodesFromRecords(result.([]*db.Record), "n"), nil
}

// AllEdges returns a snapshot of every edge ordered by identity key.
func (n *Neo4jDriver) AllEdges(ctx context.Context) ([]*types.Edge, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a:Entity)-[r]->(b:Entity)
			RETURN r, a.id AS source_id, b.id AS target_id
			ORDER BY source_id, target_id, type(r)
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return edgesFromRecords(result.([]*db.Record))
}

// CreateIndices creates the uniqueness constraint on canonical ids.
func (n *Neo4jDriver) CreateIndices(ctx context.Context) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	queries := []string{
		"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE",
		"CREATE INDEX entity_name IF NOT EXISTS FOR (n:Entity) ON (n.name)",
		"CREATE INDEX entity_type IF NOT EXISTS FOR (n:Entity) ON (n.type)",
	}
	for _, q := range queries {
		if _, err := session.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Stats retrieves node/edge counts by type.
func (n *Neo4jDriver) Stats(ctx context.Context) (*GraphStats, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	stats := &GraphStats{
		NodesByType: make(map[string]int64),
		EdgesByType: make(map[string]int64),
		LastUpdated: time.Now().UTC(),
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n:Entity)
			RETURN n.type AS type, count(n) AS count
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	for _, record := range result.([]*db.Record) {
		t, _ := record.Get("type")
		c, _ := record.Get("count")
		name, _ := t.(string)
		count, _ := c.(int64)
		stats.NodesByType[name] = count
		stats.NodeCount += count
	}

	result, err = session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (:Entity)-[r]->(:Entity)
			RETURN type(r) AS type, count(r) AS count
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	for _, record := range result.([]*db.Record) {
		t, _ := record.Get("type")
		c, _ := record.Get("count")
		name, _ := t.(string)
		count, _ := c.(int64)
		stats.EdgesByType[string(edgeTypeFromRelationship(name))] = count
		stats.EdgeCount += count
	}
	return stats, nil
}

// Provider returns the provider tag for this driver.
func (n *Neo4jDriver) Provider() GraphProvider { return GraphProviderNeo4j }

// Close releases the underlying neo4j driver.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

// VerifyConnectivity checks the database connection.
func (n *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	return n.client.VerifyConnectivity(ctx)
}

func nodesFromRecords(records []*db.Record, key string) []*types.Node {
	out := make([]*types.Node, 0, len(records))
	for _, record := range records {
		value, found := record.Get(key)
		if !found {
			continue
		}
		dbNode, ok := value.(dbtype.Node)
		if !ok {
			continue
		}
		out = append(out, nodeFromDBNode(dbNode))
	}
	return out
}

func nodeFromDBNode(dbNode dbtype.Node) *types.Node {
	node := &types.Node{}
	props := dbNode.Props
	if id, ok := props["id"].(string); ok {
		node.ID = id
	}
	if t, ok := props["type"].(string); ok {
		node.Type = types.NodeType(t)
	}
	if name, ok := props["name"].(string); ok {
		node.Name = name
	}
	if attrs, ok := props["attributes"].(string); ok && attrs != "" {
		_ = json.Unmarshal([]byte(attrs), &node.Attributes)
	}
	if raw, ok := props["raw_texts"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				node.RawTexts = append(node.RawTexts, s)
			}
		}
	}
	if created, ok := props["created_at"].(time.Time); ok {
		node.CreatedAt = created
	}
	if updated, ok := props["updated_at"].(time.Time); ok {
		node.UpdatedAt = updated
	}
	return node
}

func edgesFromRecords(records []*db.Record) ([]*types.Edge, error) {
	out := make([]*types.Edge, 0, len(records))
	for _, record := range records {
		value, found := record.Get("r")
		if !found {
			continue
		}
		rel, ok := value.(dbtype.Relationship)
		if !ok {
			continue
		}
		edge := &types.Edge{Type: edgeTypeFromRelationship(rel.Type)}
		if src, found := record.Get("source_id"); found {
			edge.SourceID, _ = src.(string)
		}
		if dst, found := record.Get("target_id"); found {
			edge.TargetID, _ = dst.(string)
		}
		props := rel.Props
		if id, ok := props["uuid"].(string); ok {
			edge.UUID = id
		}
		if p, ok := props["provenance"].(string); ok {
			edge.Provenance = types.PipelineStage(p)
		}
		if c, ok := props["confidence"].(float64); ok {
			edge.Confidence = c
		}
		if attrs, ok := props["attributes"].(string); ok && attrs != "" {
			_ = json.Unmarshal([]byte(attrs), &edge.Attributes)
		}
		if created, ok := props["created_at"].(time.Time); ok {
			edge.CreatedAt = created
		}
		if updated, ok := props["updated_at"].(time.Time); ok {
			edge.UpdatedAt = updated
		}
		out = append(out, edge)
	}
	return out, nil
}
