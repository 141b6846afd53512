// Package graphclient provides the main entry point for creating graph
// request-builder clients with the default transport and token providers wired in.
//
//	cli, err := graphclient.New(ctx, &graph.Config{DefaultVersion: "beta"},
//	  graphclient.WithAccessToken(os.Getenv("GRAPH_TOKEN")),
//	  graphclient.WithCache(graph.CacheConfig{MaxEntries: 500, TTL: time.Minute}),
//	)
//	if err != nil { log.Fatal(err) }
//
//	me, err := cli.API("/me").Select("displayName").Get(ctx)
package graphclient
