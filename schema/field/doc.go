// Package field provides the vocabulary shared by the schema loader and the
// code generator: the structural kind of a schema field and the semantic type
// of a primitive field.
//
// Field definitions follow Mongoose conventions. Type names are matched
// case-insensitively and may carry the usual namespace prefixes:
//
//	email: String                          // KindPrimitive, TypeString
//	owner: Schema.Types.ObjectId           // KindPrimitive, TypeObjectID
//	price: mongoose.Types.Decimal128       // KindPrimitive, TypeDecimal128
//	tags: [String]                         // KindArray of TypeString
//	handles: { type: Map, of: String }     // KindMap of TypeString
//
// # Kinds
//
// Every field resolves to exactly one Kind:
//
//	KindPrimitive    scalar value (string, number, date, ...)
//	KindArray        ordered sequence of another field
//	KindMap          string-keyed mapping to another field
//	KindEmbedded     nested plain object
//	KindSubdocument  nested record with its own identity and name
//	KindReference    identifier of another model, resolvable by populate
//	KindUnion        discriminated union of subdocument variants
//
// # Unknown types
//
// Lookup reports false for names it does not recognize. Callers fall back to
// TypeMixed, the unconstrained type, instead of failing.
package field
