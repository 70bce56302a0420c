// Package meta decodes the legacy key/value side tables (postmeta, termmeta,
// usermeta) into structured values and folds them into one Collection per
// owning entity.
//
// Raw values share a single text column with no type discriminator: some rows
// hold plain text, others a PHP serialize() blob. Decode tries the serialized
// form and degrades to the raw text, so reading meta never fails because of a
// value's encoding.
//
// Owner carries the meta capability for any owning entity: a lazily built,
// cached Collection plus append-only writes through a Store.
package meta
