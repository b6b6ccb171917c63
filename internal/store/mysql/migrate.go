package mysql

import (
    "context"
    "database/sql"
)

// migrations is the ordered list of table creations.  Order matters:
// departures reference tours, holds/bookings/waitlist/adjustments reference
// departures, bookings reference holds.  Statements are idempotent so
// Migrate can run on every startup.
var migrations = []string{
    `CREATE TABLE IF NOT EXISTS tours (
        id          CHAR(36)     NOT NULL,
        name        VARCHAR(255) NOT NULL,
        slug        VARCHAR(255) NOT NULL,
        description TEXT         NULL,
        created_at  DATETIME(6)  NOT NULL,
        updated_at  DATETIME(6)  NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_tours_slug (slug),
        KEY ix_tours_name (name)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS departures (
        id                 CHAR(36)    NOT NULL,
        tour_id            CHAR(36)    NOT NULL,
        starts_at          DATETIME(6) NOT NULL,
        capacity_total     INT         NOT NULL,
        capacity_available INT         NOT NULL,
        price_amount       BIGINT      NOT NULL,
        price_currency     CHAR(3)     NOT NULL,
        created_at         DATETIME(6) NOT NULL,
        updated_at         DATETIME(6) NOT NULL,
        PRIMARY KEY (id),
        KEY ix_departures_tour_id (tour_id),
        KEY ix_departures_starts_at (starts_at),
        CONSTRAINT fk_departures_tour
            FOREIGN KEY (tour_id) REFERENCES tours (id) ON DELETE CASCADE,
        CONSTRAINT ck_departures_capacity_total_non_negative
            CHECK (capacity_total >= 0),
        CONSTRAINT ck_departures_capacity_available_non_negative
            CHECK (capacity_available >= 0),
        CONSTRAINT ck_departures_capacity_available_lte_total
            CHECK (capacity_available <= capacity_total),
        CONSTRAINT ck_departures_price_amount_non_negative
            CHECK (price_amount >= 0)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS holds (
        id              CHAR(36)     NOT NULL,
        departure_id    CHAR(36)     NOT NULL,
        seats           INT          NOT NULL,
        customer_ref    VARCHAR(128) NOT NULL,
        expires_at      DATETIME(6)  NOT NULL,
        status          VARCHAR(20)  NOT NULL,
        idempotency_key VARCHAR(255) NOT NULL,
        created_at      DATETIME(6)  NOT NULL,
        updated_at      DATETIME(6)  NOT NULL,
        PRIMARY KEY (id),
        KEY ix_holds_departure_id (departure_id),
        KEY ix_holds_expires_at (expires_at),
        KEY ix_holds_status (status),
        KEY ix_holds_idempotency_key (idempotency_key),
        CONSTRAINT fk_holds_departure
            FOREIGN KEY (departure_id) REFERENCES departures (id) ON DELETE CASCADE,
        CONSTRAINT ck_holds_seats_positive CHECK (seats > 0),
        CONSTRAINT ck_holds_seats_max CHECK (seats <= 10)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS bookings (
        id           CHAR(36)     NOT NULL,
        hold_id      CHAR(36)     NOT NULL,
        departure_id CHAR(36)     NOT NULL,
        code         VARCHAR(32)  NOT NULL,
        seats        INT          NOT NULL,
        customer_ref VARCHAR(128) NOT NULL,
        status       VARCHAR(20)  NOT NULL,
        created_at   DATETIME(6)  NOT NULL,
        updated_at   DATETIME(6)  NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_bookings_hold_id (hold_id),
        UNIQUE KEY uq_bookings_code (code),
        KEY ix_bookings_departure_id (departure_id),
        KEY ix_bookings_customer_ref (customer_ref),
        CONSTRAINT fk_bookings_hold
            FOREIGN KEY (hold_id) REFERENCES holds (id) ON DELETE CASCADE,
        CONSTRAINT fk_bookings_departure
            FOREIGN KEY (departure_id) REFERENCES departures (id) ON DELETE CASCADE,
        CONSTRAINT ck_bookings_seats_positive CHECK (seats > 0)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS waitlist_entries (
        id           CHAR(36)     NOT NULL,
        departure_id CHAR(36)     NOT NULL,
        customer_ref VARCHAR(128) NOT NULL,
        notified_at  DATETIME(6)  NULL,
        created_at   DATETIME(6)  NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_waitlist_departure_customer (departure_id, customer_ref),
        KEY ix_waitlist_created_at (created_at),
        CONSTRAINT fk_waitlist_departure
            FOREIGN KEY (departure_id) REFERENCES departures (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS inventory_adjustments (
        id                        CHAR(36)     NOT NULL,
        departure_id              CHAR(36)     NOT NULL,
        delta                     INT          NOT NULL,
        reason                    TEXT         NOT NULL,
        actor                     VARCHAR(255) NOT NULL,
        capacity_total_before     INT          NOT NULL,
        capacity_total_after      INT          NOT NULL,
        capacity_available_before INT          NOT NULL,
        capacity_available_after  INT          NOT NULL,
        created_at                DATETIME(6)  NOT NULL,
        PRIMARY KEY (id),
        KEY ix_adjustments_departure_id (departure_id),
        CONSTRAINT fk_adjustments_departure
            FOREIGN KEY (departure_id) REFERENCES departures (id) ON DELETE CASCADE,
        CONSTRAINT ck_adjustments_delta_nonzero CHECK (delta <> 0),
        CONSTRAINT ck_adjustments_total_delta
            CHECK (capacity_total_after = capacity_total_before + delta),
        CONSTRAINT ck_adjustments_available_lte_total_after
            CHECK (capacity_available_after <= capacity_total_after)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS idempotency_records (
        id                   CHAR(36)     NOT NULL,
        idempotency_key      VARCHAR(255) NOT NULL,
        method               VARCHAR(64)  NOT NULL,
        request_body_hash    CHAR(64)     NOT NULL,
        response_status_code INT          NOT NULL,
        response_body        MEDIUMBLOB   NOT NULL,
        response_headers     BLOB         NULL,
        expires_at           DATETIME(6)  NOT NULL,
        created_at           DATETIME(6)  NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_idempotency_key_method (idempotency_key, method),
        KEY ix_idempotency_expires_at (expires_at),
        CONSTRAINT ck_idempotency_status_range
            CHECK (response_status_code BETWEEN 100 AND 599)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates all tables in dependency order.
func Migrate(ctx context.Context, db *sql.DB) error {
    for _, stmt := range migrations {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
