// Package sqlinline holds every SQL statement the service executes. Each
// query starts with a "--sql <name>" marker consumed by infra.SQLRunner.
package sqlinline

// Schema statements run one per Exec; pgx's extended protocol does not
// accept multi-statement strings.
const QEnsureGenerations = `--sql ensure_generations
create table if not exists generations (
  id                 bigserial primary key,
  session_id         text        not null,
  created_at         timestamptz not null default now(),
  kind               text        not null,
  model_image_key    text,
  flatlay_image_key  text,
  guidance_image_key text,
  output_image_key   text,
  refinements        text,
  output_size        text,
  prompt_used        text,
  success            boolean     not null default false,
  failure_category   text,
  error_message      text,
  processing_seconds double precision
);
`

const QEnsureGenerationsIndex = `--sql ensure_generations_index
create index if not exists generations_session_idx on generations (session_id, created_at desc);
`

const QEnsureGallery = `--sql ensure_gallery
create table if not exists gallery_images (
  id         bigserial primary key,
  created_at timestamptz not null default now(),
  image_data bytea       not null
);
`

const QInsertGeneration = `--sql insert_generation
insert into generations (
  session_id,
  kind,
  model_image_key,
  flatlay_image_key,
  guidance_image_key,
  output_image_key,
  refinements,
  output_size,
  prompt_used,
  success,
  failure_category,
  error_message,
  processing_seconds
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
returning id, created_at;
`

const QListGenerationsBySession = `--sql list_generations_by_session
select
  id,
  session_id,
  created_at,
  kind,
  coalesce(model_image_key, ''),
  coalesce(flatlay_image_key, ''),
  coalesce(guidance_image_key, ''),
  coalesce(output_image_key, ''),
  coalesce(refinements, ''),
  coalesce(output_size, ''),
  success,
  coalesce(failure_category, ''),
  coalesce(error_message, ''),
  coalesce(processing_seconds, 0)
from generations
where session_id = $1
order by created_at desc
limit $2;
`

const QInsertGalleryImage = `--sql insert_gallery_image
insert into gallery_images (image_data)
values ($1)
returning id, created_at;
`

const QListGalleryImages = `--sql list_gallery_images
select id, created_at, octet_length(image_data)
from gallery_images
order by created_at desc
limit $1;
`

const QGetGalleryImage = `--sql get_gallery_image
select image_data
from gallery_images
where id = $1;
`

const QDeleteGalleryImage = `--sql delete_gallery_image
delete from gallery_images
where id = $1;
`
