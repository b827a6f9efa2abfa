package datastore

// CreateTestCase inserts a new test case.
func (ds *DataStore) CreateTestCase(tc *TestCase) error {
	return ds.DB.Create(tc).Error
}

// GetTestCase retrieves a test case by id.
func (ds *DataStore) GetTestCase(id uint) (TestCase, error) {
	var tc TestCase
	err := ds.DB.First(&tc, id).Error
	return tc, notFound(err)
}

// GetTestCasesBySuite retrieves every test case of a suite, unpaginated.
// Used by the duplicate scan and the import reconciler, which need the full
// collection.
func (ds *DataStore) GetTestCasesBySuite(suiteID uint) ([]TestCase, error) {
	var cases []TestCase
	err := ds.DB.Where("suite_id = ?", suiteID).Order("sort_order, id").Find(&cases).Error
	return cases, err
}

// ListTestCases retrieves one page of a suite's test cases plus the total
// count for the pagination envelope.
func (ds *DataStore) ListTestCases(suiteID uint, limit, offset int) ([]TestCase, int64, error) {
	var total int64
	if err := ds.DB.Model(&TestCase{}).Where("suite_id = ?", suiteID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cases []TestCase
	err := ds.DB.Where("suite_id = ?", suiteID).
		Order("sort_order, id").
		Limit(limit).
		Offset(offset).
		Find(&cases).Error
	return cases, total, err
}

// UpdateTestCase saves a modified test case.
func (ds *DataStore) UpdateTestCase(tc *TestCase) error {
	return ds.DB.Save(tc).Error
}

// DeleteTestCase removes a test case.
func (ds *DataStore) DeleteTestCase(id uint) error {
	result := ds.DB.Delete(&TestCase{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MoveTestCase reassigns a test case to a different suite.
func (ds *DataStore) MoveTestCase(id, suiteID uint) error {
	result := ds.DB.Model(&TestCase{}).Where("id = ?", id).Update("suite_id", suiteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
