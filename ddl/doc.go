// Package ddl synthesizes create, alter and drop table statements from
// abstract field descriptions and executes them through a schema source.
//
// Descriptions are validated as a whole: a failing CreateTable or AlterTable
// returns one errs.InvalidSchemaDescription listing every offending field.
// Statements render for mysql, sqlite and postgres.
package ddl
