package store

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS person (
		id             UUID PRIMARY KEY,
		full_name      VARCHAR(50)  NOT NULL UNIQUE,
		age            INT          NOT NULL,
		email          VARCHAR(254) NOT NULL,
		phone_number   VARCHAR(16)  NOT NULL,
		password       TEXT         NOT NULL,
		role           VARCHAR(8)   NOT NULL DEFAULT 'USER' CHECK (role IN ('ADMIN', 'USER')),
		created_at     TIMESTAMPTZ  NOT NULL,
		removed_at     TIMESTAMPTZ,
		created_person TEXT         NOT NULL DEFAULT '',
		removed_person TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS book (
		book_id            UUID PRIMARY KEY,
		title              VARCHAR(255) NOT NULL,
		author             VARCHAR(50)  NOT NULL,
		year_of_production INT          NOT NULL,
		annotation         TEXT         NOT NULL,
		cover_image        BYTEA,
		status             VARCHAR(16)  NOT NULL DEFAULT 'FREE'
			CHECK (status IN ('FREE', 'ASSIGNED', 'VIEWING_COVER', 'VIEWING_CONTENT')),
		person_id          UUID REFERENCES person (id),
		version            INT          NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ  NOT NULL,
		updated_at         TIMESTAMPTZ  NOT NULL,
		removed_at         TIMESTAMPTZ,
		created_person     TEXT         NOT NULL DEFAULT '',
		updated_person     TEXT         NOT NULL DEFAULT '',
		removed_person     TEXT,
		CONSTRAINT book_custody CHECK ((status = 'ASSIGNED') = (person_id IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS book_person_id_idx ON book (person_id)`,
	`CREATE TABLE IF NOT EXISTS custody_events (
		id          BIGSERIAL PRIMARY KEY,
		book_id     UUID        NOT NULL REFERENCES book (book_id),
		person_id   UUID        REFERENCES person (id),
		operation   VARCHAR(16) NOT NULL,
		from_status VARCHAR(16) NOT NULL,
		to_status   VARCHAR(16) NOT NULL,
		actor       TEXT        NOT NULL DEFAULT '',
		version     INT         NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (book_id, version)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS person (
		id             TEXT PRIMARY KEY,
		full_name      TEXT      NOT NULL UNIQUE,
		age            INTEGER   NOT NULL,
		email          TEXT      NOT NULL,
		phone_number   TEXT      NOT NULL,
		password       TEXT      NOT NULL,
		role           TEXT      NOT NULL DEFAULT 'USER' CHECK (role IN ('ADMIN', 'USER')),
		created_at     TIMESTAMP NOT NULL,
		removed_at     TIMESTAMP,
		created_person TEXT      NOT NULL DEFAULT '',
		removed_person TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS book (
		book_id            TEXT PRIMARY KEY,
		title              TEXT      NOT NULL,
		author             TEXT      NOT NULL,
		year_of_production INTEGER   NOT NULL,
		annotation         TEXT      NOT NULL,
		cover_image        BLOB,
		status             TEXT      NOT NULL DEFAULT 'FREE'
			CHECK (status IN ('FREE', 'ASSIGNED', 'VIEWING_COVER', 'VIEWING_CONTENT')),
		person_id          TEXT REFERENCES person (id),
		version            INTEGER   NOT NULL DEFAULT 0,
		created_at         TIMESTAMP NOT NULL,
		updated_at         TIMESTAMP NOT NULL,
		removed_at         TIMESTAMP,
		created_person     TEXT      NOT NULL DEFAULT '',
		updated_person     TEXT      NOT NULL DEFAULT '',
		removed_person     TEXT,
		CHECK ((status = 'ASSIGNED') = (person_id IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS book_person_id_idx ON book (person_id)`,
	`CREATE TABLE IF NOT EXISTS custody_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id     TEXT      NOT NULL REFERENCES book (book_id),
		person_id   TEXT      REFERENCES person (id),
		operation   TEXT      NOT NULL,
		from_status TEXT      NOT NULL,
		to_status   TEXT      NOT NULL,
		actor       TEXT      NOT NULL DEFAULT '',
		version     INTEGER   NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		UNIQUE (book_id, version)
	)`,
}
