// Package core defines the domain model shared across the pipeline:
// deterministic content-derived identities, datasets and their namespaces,
// documents, structural blocks, chunks and evaluation results, together
// with their validation rules and binary serializers.
package core
