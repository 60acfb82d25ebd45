package models

// RawJob is the unnormalized field mapping emitted by a site extractor, keyed
// by the canonical field names. Values may be missing, nil, strings, lists or
// numbers.
type RawJob map[string]any

// FieldSourceURL is carried on raw jobs for logging; it is not exported.
const FieldSourceURL = "source_url"
