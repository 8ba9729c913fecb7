package app

import (
	"github.com/novelshelf/novelshelf-backend/internal/clients/redis"
	"github.com/novelshelf/novelshelf-backend/internal/graph"
	"github.com/novelshelf/novelshelf-backend/internal/logger"
	"github.com/novelshelf/novelshelf-backend/internal/platform/neo4jdb"
)

type Clients struct {
	Neo4j       *neo4jdb.Client
	RecCache    *redis.RecCache
	SocialGraph *graph.SocialGraph
}

// wireClients connects the optional backing stores. Both the graph database
// and the cache are allowed to be absent: the social graph falls back to
// postgres and every recommendation request regenerates.
func wireClients(log *logger.Logger, reposet Repos) Clients {
	log.Info("Wiring clients...")

	neoClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j unavailable, social graph degrades to postgres", "error", err)
		neoClient = nil
	}

	recCache, err := redis.NewRecCache(log)
	if err != nil {
		log.Warn("Redis unavailable, recommendation caching disabled", "error", err)
		recCache = nil
	}

	socialGraph := graph.NewSocialGraph(neoClient, reposet.Follow, reposet.Activity, log)

	return Clients{
		Neo4j:       neoClient,
		RecCache:    recCache,
		SocialGraph: socialGraph,
	}
}
