package db

// Keyspace derives every key the application writes for an index from one
// configurable prefix.
type Keyspace struct {
	Prefix string
}

// IndexName is the FT index over an index's documents.
func (k Keyspace) IndexName(index string) string { return k.Prefix + index + ":idx" }

// DocPrefix is the key prefix shared by an index's document hashes.
func (k Keyspace) DocPrefix(index string) string { return k.Prefix + index + ":doc:" }

// DocKey is the hash key of one document.
func (k Keyspace) DocKey(index, id string) string { return k.DocPrefix(index) + id }

// FieldsKey is the hash holding an index's field declarations.
func (k Keyspace) FieldsKey(index string) string { return k.Prefix + index + ":fields" }

// DocID strips the document prefix from a key returned by a search.
func (k Keyspace) DocID(index, key string) string {
	p := k.DocPrefix(index)
	if len(key) >= len(p) && key[:len(p)] == p {
		return key[len(p):]
	}
	return key
}
