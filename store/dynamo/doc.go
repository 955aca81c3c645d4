/*
 * Copyright © 2026 Tidemark Systems Inc., All rights reserved.
 */

// Package dynamo implements the table client on AWS DynamoDB. Predicates in
// the textual filter grammar are recompiled into DynamoDB filter expressions,
// continuation tokens wrap the scan's last evaluated key, version tags ride
// on a dedicated ETag attribute guarded by conditional writes, and atomic
// batches map onto single-partition write transactions.
package dynamo
