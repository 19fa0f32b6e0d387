package capacity

import "github.com/redis/go-redis/v9"

// KEYS[1] hash слота, KEYS[2] индекс слотов дня, KEYS[3] zset изменений
// ARGV[1] capacity, ARGV[2] now ms, ARGV[3] время начала, ARGV[4] member zset, ARGV[5] expire at (unix s)
// Лимит берется из ARGV[1] при каждом вызове, capacity в hash обновляется до него.
// Возвращает новое значение occupied или -1, если слот заполнен
var reserveScript = redis.NewScript(`
local occupied = tonumber(redis.call('HGET', KEYS[1], 'occupied')) or 0
local capacity = tonumber(ARGV[1])
if occupied >= capacity then
  return -1
end
occupied = redis.call('HINCRBY', KEYS[1], 'occupied', 1)
redis.call('HSET', KEYS[1], 'capacity', capacity)
redis.call('HSET', KEYS[1], 'updated', ARGV[2])
redis.call('HDEL', KEYS[1], 'reconciled')
redis.call('SADD', KEYS[2], ARGV[3])
redis.call('ZADD', KEYS[3], ARGV[2], ARGV[4])
redis.call('EXPIREAT', KEYS[1], ARGV[5])
redis.call('EXPIREAT', KEYS[2], ARGV[5])
return occupied
`)

// KEYS[1] hash слота, KEYS[2] zset изменений
// ARGV[1] now ms, ARGV[2] member zset
// Возвращает 1, если место освобождено, 0 если освобождать нечего
var releaseScript = redis.NewScript(`
local occupied = tonumber(redis.call('HGET', KEYS[1], 'occupied'))
if not occupied or occupied <= 0 then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'occupied', -1)
redis.call('HSET', KEYS[1], 'updated', ARGV[1])
redis.call('HDEL', KEYS[1], 'reconciled')
redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
return 1
`)

// KEYS[1] hash слота, KEYS[2] zset изменений
// ARGV[1] ожидаемый occupied, ARGV[2] ожидаемый updated ms, ARGV[3] новое значение, ARGV[4] member zset
// Возвращает 1, если значение изменено
var reconcileScript = redis.NewScript(`
local occupied = tonumber(redis.call('HGET', KEYS[1], 'occupied'))
if not occupied then
  redis.call('ZREM', KEYS[2], ARGV[4])
  return 0
end
local updated = tonumber(redis.call('HGET', KEYS[1], 'updated')) or 0
if occupied ~= tonumber(ARGV[1]) or updated ~= tonumber(ARGV[2]) then
  return 0
end
local actual = tonumber(ARGV[3])
if actual < 0 then actual = 0 end
redis.call('HSET', KEYS[1], 'occupied', actual, 'reconciled', 1)
redis.call('ZREM', KEYS[2], ARGV[4])
return 1
`)
