package sqlinline

const QInsertJob = `--sql 1f4b7c9a-8d23-4e61-a5f0-3b9c62d81e47
insert into jobs (id, user_id, filename, model, status, result, created_at, alias, language_hint, progress)
values ($1, $2, $3, $4, $5, '', $6, $7, $8, 0.0);
`

const jobColumns = `
    id, user_id, filename, model, status,
    coalesce(result, ''), created_at, coalesce(alias, ''), coalesce(language_hint, 'auto'),
    coalesce(progress, 0.0), start_timestamp, duration,
    coalesce(detected_language, ''), audio_duration, file_size, coalesce(error_message, '')`

const QSelectJobByID = `--sql 9e2d5f71-3c48-4b0a-8e96-d17a4b52c380
select` + jobColumns + `
from jobs
where id = $1;
`

const QSelectJobsByOwner = `--sql 6a8c1d3f-7e52-4690-b4d8-2f95e0a7c614
select` + jobColumns + `
from jobs
where user_id = $1
order by created_at desc, id desc;
`

const QSelectJobsByAlias = `--sql b5e920c7-4d16-48f3-a2b8-7c60d93f15ea
select` + jobColumns + `
from jobs
where user_id = $1 and alias = $2
order by created_at desc, id desc;
`

const QDeleteJob = `--sql 2c7f8a14-6b93-4d25-9e01-f48b5c3d7a62
delete from jobs
where id = $1 and user_id = $2;
`

const QDeleteJobsByAlias = `--sql e4a16d82-9f37-4c50-b6e3-18d2a75f09cb
delete from jobs
where user_id = $1 and alias = $2;
`

const QCountActiveJobs = `--sql 08d3b6f5-1e74-4a29-8c50-67e9f2d41b83
select count(*)
from jobs
where user_id = $1 and status in ('queued', 'processing');
`

// Transition updates. Each statement is one atomic partial update guarded by
// the expected source status, so a stale or duplicate write matches zero rows
// instead of corrupting a terminal record. Progress never moves backward.

const QJobStartProcessing = `--sql 5b0e7d29-8a46-4f13-92c7-d61f3e84a507
update jobs
set status = 'processing', start_timestamp = $2, progress = 0.1
where id = $1 and status = 'queued';
`

const QJobSetProgress = `--sql a39c5e08-2d71-4b86-9f24-c50e81d7f3b6
update jobs
set progress = greatest(coalesce(progress, 0.0), $2)
where id = $1 and status = 'processing';
`

const QJobCompleteSuccess = `--sql d82f4a61-0c95-4e37-b1d8-39a6e5c20f74
update jobs
set status = 'completed', result = $2, progress = 1.0, duration = $3,
    detected_language = $4, audio_duration = $5, file_size = $6
where id = $1 and status = 'processing';
`

const QJobCompleteFailure = `--sql 71b3d9e6-5f28-4a04-8c61-e94d07a2f5c3
update jobs
set status = 'failed', result = $2, error_message = $2, progress = 1.0, duration = $3
where id = $1 and status = 'processing';
`
