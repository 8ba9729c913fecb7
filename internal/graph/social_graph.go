package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/platform/neo4jdb"
	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
)

// RelationalFollows is the postgres fallback for the follow list when the
// graph database is not configured.
type RelationalFollows interface {
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// RelationalActivity is the postgres fallback for a user's liked/shelved
// book ids.
type RelationalActivity interface {
	ActivityBookIDs(ctx context.Context, userID uuid.UUID) (liked, shelved []uuid.UUID, err error)
}

// SocialGraph answers follow-graph queries from neo4j and mirrors writes into
// it. Without a configured client it degrades: reads fall back to postgres,
// pairwise counts report zero, writes become no-ops.
type SocialGraph struct {
	client   *neo4jdb.Client
	follows  RelationalFollows
	activity RelationalActivity
	log      *logger.Logger
}

var _ recommendation.SocialGraphStore = (*SocialGraph)(nil)

func NewSocialGraph(client *neo4jdb.Client, follows RelationalFollows, activity RelationalActivity, log *logger.Logger) *SocialGraph {
	return &SocialGraph{
		client:   client,
		follows:  follows,
		activity: activity,
		log:      log.With("store", "SocialGraph"),
	}
}

func (g *SocialGraph) Enabled() bool {
	return g.client != nil && g.client.Driver != nil
}

func (g *SocialGraph) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if !g.Enabled() {
		return g.follows.FollowingIDs(ctx, userID)
	}
	records, err := g.read(ctx,
		`MATCH (:User {id: $id})-[:FOLLOWS]->(f:User) RETURN f.id AS id`,
		map[string]any{"id": userID.String()})
	if err != nil {
		g.log.Warn("graph following query failed, falling back to postgres", "error", err)
		return g.follows.FollowingIDs(ctx, userID)
	}
	return recordIDs(records, "id")
}

func (g *SocialGraph) Activity(ctx context.Context, userID uuid.UUID) (recommendation.ActivitySet, error) {
	if !g.Enabled() {
		liked, shelved, err := g.activity.ActivityBookIDs(ctx, userID)
		return recommendation.ActivitySet{Liked: liked, Shelved: shelved}, err
	}
	likedRecords, err := g.read(ctx,
		`MATCH (:User {id: $id})-[:LIKED]->(b:Book) RETURN b.id AS id`,
		map[string]any{"id": userID.String()})
	if err != nil {
		liked, shelved, ferr := g.activity.ActivityBookIDs(ctx, userID)
		return recommendation.ActivitySet{Liked: liked, Shelved: shelved}, ferr
	}
	shelvedRecords, err := g.read(ctx,
		`MATCH (:User {id: $id})-[:SHELVED]->(b:Book) RETURN b.id AS id`,
		map[string]any{"id": userID.String()})
	if err != nil {
		return recommendation.ActivitySet{}, fmt.Errorf("graph shelved query: %w", err)
	}
	liked, err := recordIDs(likedRecords, "id")
	if err != nil {
		return recommendation.ActivitySet{}, err
	}
	shelved, err := recordIDs(shelvedRecords, "id")
	if err != nil {
		return recommendation.ActivitySet{}, err
	}
	return recommendation.ActivitySet{Liked: liked, Shelved: shelved}, nil
}

func (g *SocialGraph) MutualFriendCount(ctx context.Context, userID, otherID uuid.UUID) (int, error) {
	if !g.Enabled() {
		return 0, nil
	}
	return g.readCount(ctx,
		`MATCH (:User {id: $a})-[:FOLLOWS]->(m:User)<-[:FOLLOWS]-(:User {id: $b}) RETURN count(DISTINCT m) AS n`,
		map[string]any{"a": userID.String(), "b": otherID.String()})
}

// InteractionCount counts books both users have engaged with; it stands in
// for direct interaction events until those are tracked.
func (g *SocialGraph) InteractionCount(ctx context.Context, userID, otherID uuid.UUID) (int, error) {
	if !g.Enabled() {
		return 0, nil
	}
	return g.readCount(ctx,
		`MATCH (:User {id: $a})-[:LIKED|SHELVED]->(b:Book)<-[:LIKED|SHELVED]-(:User {id: $b}) RETURN count(DISTINCT b) AS n`,
		map[string]any{"a": userID.String(), "b": otherID.String()})
}

// UpsertFollow mirrors a new follow edge. Best effort: postgres already holds
// the row of record.
func (g *SocialGraph) UpsertFollow(ctx context.Context, followerID, followeeID uuid.UUID) {
	g.write(ctx,
		`MERGE (a:User {id: $a}) MERGE (b:User {id: $b}) MERGE (a)-[:FOLLOWS]->(b)`,
		map[string]any{"a": followerID.String(), "b": followeeID.String()})
}

func (g *SocialGraph) RemoveFollow(ctx context.Context, followerID, followeeID uuid.UUID) {
	g.write(ctx,
		`MATCH (:User {id: $a})-[r:FOLLOWS]->(:User {id: $b}) DELETE r`,
		map[string]any{"a": followerID.String(), "b": followeeID.String()})
}

func (g *SocialGraph) RecordLike(ctx context.Context, userID, bookID uuid.UUID) {
	g.write(ctx,
		`MERGE (u:User {id: $u}) MERGE (b:Book {id: $b}) MERGE (u)-[:LIKED]->(b)`,
		map[string]any{"u": userID.String(), "b": bookID.String()})
}

func (g *SocialGraph) RemoveLike(ctx context.Context, userID, bookID uuid.UUID) {
	g.write(ctx,
		`MATCH (:User {id: $u})-[r:LIKED]->(:Book {id: $b}) DELETE r`,
		map[string]any{"u": userID.String(), "b": bookID.String()})
}

func (g *SocialGraph) RecordShelved(ctx context.Context, userID, bookID uuid.UUID, shelf string) {
	g.write(ctx,
		`MERGE (u:User {id: $u}) MERGE (b:Book {id: $b}) MERGE (u)-[r:SHELVED]->(b) SET r.shelf = $shelf`,
		map[string]any{"u": userID.String(), "b": bookID.String(), "shelf": shelf})
}

func (g *SocialGraph) RemoveShelved(ctx context.Context, userID, bookID uuid.UUID) {
	g.write(ctx,
		`MATCH (:User {id: $u})-[r:SHELVED]->(:Book {id: $b}) DELETE r`,
		map[string]any{"u": userID.String(), "b": bookID.String()})
}

func (g *SocialGraph) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := neo4j.ExecuteQuery(ctx, g.client.Driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(g.client.Database),
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

func (g *SocialGraph) readCount(ctx context.Context, cypher string, params map[string]any) (int, error) {
	records, err := g.read(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	n, ok := records[0].Get("n")
	if !ok {
		return 0, nil
	}
	count, ok := n.(int64)
	if !ok {
		return 0, fmt.Errorf("graph count: unexpected type %T", n)
	}
	return int(count), nil
}

func (g *SocialGraph) write(ctx context.Context, cypher string, params map[string]any) {
	if !g.Enabled() {
		return
	}
	_, err := neo4j.ExecuteQuery(ctx, g.client.Driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(g.client.Database))
	if err != nil {
		g.log.Warn("graph write failed", "error", err)
	}
}

func recordIDs(records []*neo4j.Record, key string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		raw, ok := rec.Get(key)
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("graph id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
