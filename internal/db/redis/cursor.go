package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docsearch/internal/db"
)

// OpenCursor starts an FT.AGGREGATE cursor that loads one id field per match.
func (s *Store) OpenCursor(ctx context.Context, q *db.CursorQuery) (*db.CursorPage, error) {
	if q.Index == "" || q.IDField == "" {
		return nil, fmt.Errorf("index and id field are required")
	}
	if q.Count <= 0 {
		return nil, fmt.Errorf("%w: cursor count must be positive", db.ErrInvalidQuery)
	}

	rendered, err := renderQuery(q.Query, q.Schema)
	if err != nil {
		return nil, err
	}

	args := []string{
		q.Index, rendered,
		"LOAD", "1", "@" + q.IDField,
		"WITHCURSOR", "COUNT", strconv.Itoa(q.Count),
	}
	if q.MaxIdle > 0 {
		args = append(args, "MAXIDLE", strconv.FormatInt(q.MaxIdle.Milliseconds(), 10))
	}
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, wrapQueryErr(db.OpAggregate, err)
	}
	return parseCursorReply(raw, q.IDField)
}

// ReadCursor fetches the next batch of an open cursor.
func (s *Store) ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*db.CursorPage, error) {
	args := []string{"READ", index, strconv.FormatInt(cursorID, 10)}
	if count > 0 {
		args = append(args, "COUNT", strconv.Itoa(count))
	}
	cmd := s.b().Arbitrary("FT.CURSOR").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "cursor not found") {
			return nil, db.ErrCursorNotFound
		}
		return nil, wrapQueryErr(db.OpCursorRead, err)
	}
	return parseCursorReply(raw, "")
}

// DeleteCursor releases a cursor before it idles out.
func (s *Store) DeleteCursor(ctx context.Context, index string, cursorID int64) error {
	cmd := s.b().Arbitrary("FT.CURSOR").Args("DEL", index, strconv.FormatInt(cursorID, 10)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "cursor does not exist") || isRedisErr(err, "cursor not found") {
			return db.ErrCursorNotFound
		}
		return &db.Error{Op: db.OpCursorDel, Err: err}
	}
	return nil
}

// parseCursorReply reads [[total, row...], cursorID]. Each row is a flat
// field/value array; with an empty idField the first value of the row is used.
func parseCursorReply(raw []rueidis.RedisMessage, idField string) (*db.CursorPage, error) {
	if len(raw) != 2 {
		return nil, fmt.Errorf("parse cursor reply: expected 2 elements, got %d", len(raw))
	}

	rows, err := raw[0].ToArray()
	if err != nil {
		return nil, fmt.Errorf("parse cursor rows: %w", err)
	}
	cursorID, err := raw[1].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse cursor id: %w", err)
	}

	page := &db.CursorPage{CursorID: cursorID}
	for i := 1; i < len(rows); i++ {
		row, err := rows[i].ToArray()
		if err != nil || len(row) < 2 {
			continue
		}
		if idField == "" {
			if v, err := row[1].ToString(); err == nil {
				page.IDs = append(page.IDs, v)
			}
			continue
		}
		if v, ok := parseFieldPairs(row)[idField]; ok {
			page.IDs = append(page.IDs, v)
		}
	}
	return page, nil
}
