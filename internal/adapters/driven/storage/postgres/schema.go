package postgres

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS vector_collections (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vector_records (
    seq BIGSERIAL PRIMARY KEY,
    collection_id BIGINT NOT NULL REFERENCES vector_collections(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    text TEXT NOT NULL,
    embedding vector NOT NULL,
    source_id TEXT NOT NULL,
    source_type TEXT NOT NULL,
    web_site TEXT NOT NULL DEFAULT '',
    ordinal INTEGER NOT NULL,
    metadata JSONB NOT NULL,
    UNIQUE (collection_id, id)
);

CREATE INDEX IF NOT EXISTS idx_vector_records_source ON vector_records(collection_id, source_id);
CREATE INDEX IF NOT EXISTS idx_vector_records_site ON vector_records(collection_id, web_site);
`
