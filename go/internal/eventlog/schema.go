package eventlog

// Schema creates the event table and its lookup indexes. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS scoreboard_events (
    id          UUID PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    kind        TEXT NOT NULL,
    event       TEXT NOT NULL,
    details     JSONB,
    username    TEXT
);

CREATE INDEX IF NOT EXISTS idx_scoreboard_events_occurred_at ON scoreboard_events (occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_scoreboard_events_kind ON scoreboard_events (kind);
`
