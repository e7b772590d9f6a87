// Package dynamodb provides a clockcache.Backend stored in a DynamoDB table.
//
// Table schema:
//   - Partition key: ns (string) - the namespace of the cache
//   - Sort key: k (number) - the cache key
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name clockcache \
//	  --attribute-definitions AttributeName=ns,AttributeType=S AttributeName=k,AttributeType=N \
//	  --key-schema AttributeName=ns,KeyType=HASH AttributeName=k,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
//
// Values are encoded with a codec.Codec into the binary attribute v.
package dynamodb
