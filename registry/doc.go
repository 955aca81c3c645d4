/*
Package registry maps Go entity types to their table keys.

A KeyMap tells the repository how to derive the partition and row key from an
entity using macro templates:

	registry.RegisterKeyMap[Player](registry.KeyMap{
	    PartitionKey: "CLUB#{Club}",
	    RowKey:       "PLAYER#{ID}",
	    ETagField:    "ETag",
	})

Macros expand from entity field values at write time. ExpandKey covers the
string-key lookup path by substituting a raw key into every macro, so
one-field identities can be addressed without building the entity first.
*/
package registry
