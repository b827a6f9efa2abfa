package datastore

// CreateSuite inserts a new suite.
func (ds *DataStore) CreateSuite(suite *Suite) error {
	return ds.DB.Create(suite).Error
}

// GetSuite retrieves a suite by id with its computed counts.
func (ds *DataStore) GetSuite(id uint) (Suite, error) {
	var suite Suite
	if err := ds.DB.First(&suite, id).Error; err != nil {
		return suite, notFound(err)
	}
	if err := ds.fillSuiteCounts(&suite); err != nil {
		return suite, err
	}
	return suite, nil
}

// GetAllSuites retrieves the flat suite list of a repository, ordered by
// sibling position, with computed counts.
func (ds *DataStore) GetAllSuites(repositoryID uint) ([]Suite, error) {
	var suites []Suite
	if err := ds.DB.Where("repository_id = ?", repositoryID).
		Order("sort_order, id").
		Find(&suites).Error; err != nil {
		return nil, err
	}
	for i := range suites {
		if err := ds.fillSuiteCounts(&suites[i]); err != nil {
			return nil, err
		}
	}
	return suites, nil
}

// RenameSuite changes a suite's title.
func (ds *DataStore) RenameSuite(id uint, title string) error {
	result := ds.DB.Model(&Suite{}).Where("id = ?", id).Update("title", title)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSuitePlacement sets a suite's parent and sibling order in one
// update. The move planner is responsible for having validated the target
// and shifted siblings beforehand.
func (ds *DataStore) UpdateSuitePlacement(id uint, parentID *uint, order int) error {
	result := ds.DB.Model(&Suite{}).Where("id = ?", id).
		Updates(map[string]any{"parent_id": parentID, "sort_order": order})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSuite removes a suite; child suites and test cases cascade.
func (ds *DataStore) DeleteSuite(id uint) error {
	// gorm does not cascade self-referential children through constraints
	// reliably across drivers, so descend explicitly.
	var children []Suite
	if err := ds.DB.Where("parent_id = ?", id).Find(&children).Error; err != nil {
		return err
	}
	for i := range children {
		if err := ds.DeleteSuite(children[i].ID); err != nil {
			return err
		}
	}
	if err := ds.DB.Where("suite_id = ?", id).Delete(&TestCase{}).Error; err != nil {
		return err
	}
	return ds.DB.Delete(&Suite{}, id).Error
}

func (ds *DataStore) fillSuiteCounts(suite *Suite) error {
	if err := ds.DB.Model(&Suite{}).
		Where("parent_id = ?", suite.ID).
		Count(&suite.ChildSuiteCount).Error; err != nil {
		return err
	}
	return ds.DB.Model(&TestCase{}).
		Where("suite_id = ?", suite.ID).
		Count(&suite.TestCaseCount).Error
}
