// Package query filters stored log lines with CEL expressions.
//
//	f, err := query.NewFilter(`level == "ERROR" && message.contains("flush")`)
//	if err != nil { /* invalid expression */ }
//	_ = query.Search(ctx, query.SearchOptions{Dir: dir, Filter: f}, func(l query.Line) bool {
//	    fmt.Println(l.File, l.Number, l.Text)
//	    return true
//	})
package query
