// Package postgres provides the PostgreSQL vector collection backend.
//
// Vectors live in a pgvector "vector" column and are ranked in the database
// with the cosine distance operator (<=>), ties broken by insertion order.
// The schema is created on connect; the server must allow
// CREATE EXTENSION vector (the pgvector/pgvector images do).
package postgres
