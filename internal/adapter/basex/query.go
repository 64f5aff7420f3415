package basex

import "context"

// Query is a query registered on the server.
type Query struct {
	c  *Client
	id string
}

// ID returns the server-side query id.
func (q *Query) ID() string { return q.id }

// Bind binds an external variable. typ is an XQuery type name such as
// "xs:integer"; empty means xs:untypedAtomic.
func (q *Query) Bind(ctx context.Context, name, value, typ string) error {
	_, err := q.c.queryCommand(ctx, codeBind, q.id, name, value, typ)
	return err
}

// Execute runs the query and returns its serialized result.
func (q *Query) Execute(ctx context.Context) (string, error) {
	return q.c.queryCommand(ctx, codeExecute, q.id)
}

// Close unregisters the query.
func (q *Query) Close(ctx context.Context) error {
	_, err := q.c.queryCommand(ctx, codeClose, q.id)
	return err
}
