// Package client is a Go client for the serpdex search API.
//
//	c, _ := client.New("http://localhost:8080", client.WithTimeout(10*time.Second))
//	results, err := c.Search(ctx, client.Query{
//	    Text:        "lagrangian",
//	    FinalLimit:  client.Int(5),
//	    URLContains: []string{"wikipedia"},
//	})
//	if errors.Is(err, client.ErrStageTimeout) {
//	    // retry with a smaller broad limit
//	}
package client
