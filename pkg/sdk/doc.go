// Package docmind embeds the docmind retrieval engine in a Go program:
// documents are chunked, embedded and stored in Redis (vectors) and SQLite
// (document rows), and queried with hybrid semantic + BM25 search fused by
// weighted reciprocal rank fusion.
//
//	client, _ := docmind.New(ctx,
//	    docmind.WithRedis("localhost:6379", ""),
//	    docmind.WithSQLite("docmind.db"),
//	    docmind.WithEmbedder(myEmbedder),
//	    docmind.WithVectorDimensions(1536),
//	)
//	defer client.Close()
//
//	doc, _ := client.Ingest(ctx, "alice", "contract.pdf", data, docmind.Metadata{Category: "legal"})
//	hits, _ := client.Search(ctx, "alice", "termination clause", docmind.SearchOptions{TopK: 5})
package docmind
