package postgres

// schema creates the mirror tables. The text files stay authoritative, so the
// mirror keeps no history beyond mirror_runs.
const schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id            text PRIMARY KEY,
	full_name     text NOT NULL,
	date_of_birth date NOT NULL,
	contact_info  text NOT NULL
);

CREATE TABLE IF NOT EXISTS hosts (
	id            text PRIMARY KEY,
	full_name     text NOT NULL,
	date_of_birth date NOT NULL,
	contact_info  text NOT NULL
);

CREATE TABLE IF NOT EXISTS properties (
	id             text PRIMARY KEY,
	address        text NOT NULL,
	price          numeric(12,2) NOT NULL,
	status         text NOT NULL,
	owner          text NOT NULL,
	property_type  text NOT NULL,
	bedrooms       integer,
	has_garden     boolean,
	pet_friendly   boolean,
	business_type  text,
	parking_spaces integer,
	square_footage numeric(12,2)
);

CREATE TABLE IF NOT EXISTS rental_agreements (
	id            text PRIMARY KEY,
	tenant_id     text NOT NULL REFERENCES tenants (id),
	property_id   text NOT NULL REFERENCES properties (id),
	period        text NOT NULL,
	contract_date date NOT NULL,
	renting_fee   numeric(12,2) NOT NULL,
	status        text NOT NULL
);

CREATE TABLE IF NOT EXISTS rental_sub_tenants (
	agreement_id text NOT NULL REFERENCES rental_agreements (id),
	tenant_id    text NOT NULL REFERENCES tenants (id),
	position     integer NOT NULL,
	PRIMARY KEY (agreement_id, tenant_id)
);

CREATE TABLE IF NOT EXISTS payments (
	id           text PRIMARY KEY,
	amount       numeric(12,2) NOT NULL,
	payment_date date NOT NULL,
	method       text NOT NULL,
	agreement_id text NOT NULL,
	attached     boolean NOT NULL
);

CREATE TABLE IF NOT EXISTS mirror_runs (
	id        uuid PRIMARY KEY,
	data_dir  text NOT NULL,
	synced_at timestamptz NOT NULL,
	records   integer NOT NULL
);
`

// truncate clears every mirrored entity table; mirror_runs is kept.
const truncate = `TRUNCATE rental_sub_tenants, payments, rental_agreements, properties, hosts, tenants`
